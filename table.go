package ceresdb

import (
	"bytes"
	"context"
	"fmt"
)

// Table is a handle to a table for statements and points.
type Table struct {
	c *Client

	// Database is the name of the database.
	//
	// This is optional and may be empty, in which case the client default
	// database is used.
	Database string
	// Name is the name of the table.
	Name string
}

func (c *Client) Table(name string) *Table {
	return &Table{
		c:    c,
		Name: name,
	}
}

// Identifier returns the quoted table name for use in SQL text.
func (t *Table) Identifier() string {
	return quoteIdent(t.Name, '`')
}

// Statement creates a statement routed to this table.
func (t *Table) Statement(sql string) *Statement {
	s := t.c.Statement(sql)
	s.Tables = []string{t.Name}
	s.Database = t.Database
	return s
}

// Point starts a point for this table.
func (t *Table) Point() *PointBuilder {
	return NewPointBuilder(t.Name)
}

// Drop drops the table if it exists.
func (t *Table) Drop(ctx context.Context) error {
	_, err := t.Statement(fmt.Sprintf(`DROP TABLE IF EXISTS %s`, t.Identifier())).Exec(ctx)
	return err
}

// Count returns the number of rows in the table.
func (t *Table) Count(ctx context.Context) (int64, error) {
	resp, err := t.Statement(fmt.Sprintf(`SELECT COUNT(*) AS cnt FROM %s`, t.Identifier())).Execute(ctx)
	if err != nil {
		return 0, err
	}
	row, ok := resp.Row(0)
	if !ok {
		return 0, &Error{Kind: KindServer, Op: "table.count", Message: "no rows returned for " + t.Name}
	}
	col, err := row.ColumnByIdx(0)
	if err != nil {
		return 0, err
	}
	v, err := Interface(col.Value)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case int64:
		return n, nil
	case uint64:
		return int64(n), nil
	default:
		return 0, &Error{Kind: KindServer, Op: "table.count", Message: fmt.Sprintf("count of %s returned %s", t.Name, col.DataType)}
	}
}

func quoteIdent(s string, r rune) string {
	var b bytes.Buffer
	b.WriteRune(r)
	for _, c := range s {
		switch c {
		case '\t':
			b.WriteString("\\t")
		case '\n':
			b.WriteString("\\n")
		case '\r':
			b.WriteString("\\r")
		case '\\':
			b.WriteString("\\\\")
		default:
			if c == r {
				b.WriteRune(c)
				b.WriteRune(c)
				break
			}

			if c < 0x20 {
				b.WriteString(fmt.Sprintf("\\x%02x", c))
				break
			}

			b.WriteRune(c)
		}
	}
	b.WriteRune(r)
	return b.String()
}
