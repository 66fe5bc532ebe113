package main

import (
	"fmt"
	"strings"
)

// viewBodyOffset skips "TYPE=VIEW\n": 2 magic bytes plus 8.
const viewBodyOffset = 2 + 8

// readView parses the key=value text body of a view .frm file.
func readView(c *binaryCursor) (map[string]string, error) {
	c.stage = "view"
	if err := c.seek(viewBodyOffset); err != nil {
		return nil, err
	}
	body, err := c.rest()
	if err != nil {
		return nil, err
	}
	values := make(map[string]string)
	for _, line := range strings.Split(string(body), "\n") {
		key, value, ok := strings.Cut(line, "=")
		if !ok || key == "" {
			continue
		}
		values[key] = unescapeViewValue(value)
	}
	if _, ok := values["query"]; !ok {
		return nil, c.fail(fmt.Errorf("%w: view has no query", ErrUnsupportedFormat))
	}
	return values, nil
}

// unescapeViewValue reverses the escaping applied to stored view values.
func unescapeViewValue(v string) string {
	if !strings.Contains(v, `\`) {
		return v
	}
	var b strings.Builder
	for i := 0; i < len(v); i++ {
		if v[i] != '\\' || i+1 == len(v) {
			b.WriteByte(v[i])
			continue
		}
		i++
		switch v[i] {
		case 'n':
			b.WriteByte('\n')
		case '0':
			b.WriteByte(0)
		case 'Z':
			b.WriteByte(0x1A)
		default:
			b.WriteByte(v[i])
		}
	}
	return b.String()
}

// viewStatement renders a view. By default this is the stored query text;
// with full set it is a complete CREATE VIEW statement.
func viewStatement(v *ViewDescriptor, full bool) string {
	query := v.Values["query"]
	if !full {
		return query
	}

	var b strings.Builder
	b.WriteString("CREATE")
	switch v.Values["algorithm"] {
	case "1":
		b.WriteString(" ALGORITHM=TEMPTABLE")
	case "2":
		b.WriteString(" ALGORITHM=MERGE")
	default:
		b.WriteString(" ALGORITHM=UNDEFINED")
	}
	if user := v.Values["definer_user"]; user != "" {
		fmt.Fprintf(&b, " DEFINER=%s@%s", quoteIdent(user), quoteIdent(v.Values["definer_host"]))
	}
	if v.Values["suid"] == "0" {
		b.WriteString(" SQL SECURITY INVOKER")
	} else {
		b.WriteString(" SQL SECURITY DEFINER")
	}
	fmt.Fprintf(&b, " VIEW %s AS %s", qualifiedName(v.Database, v.Name), query)
	switch v.Values["with_check_option"] {
	case "1":
		b.WriteString(" WITH LOCAL CHECK OPTION")
	case "2":
		b.WriteString(" WITH CASCADED CHECK OPTION")
	}
	b.WriteString(";")
	return b.String()
}
