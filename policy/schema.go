// Positional schema for policy-scan dumps.
//
// A policy list rule emits rows of the form
//
//   <inode> <gen> <snapshot-id>  v1 * v2 * ... vN *  <filename>
//
// where the payload columns v1..vN are whatever the SHOW() clause of the rule concatenated, with a
// literal '*' separator token between them.  A payload column holding a timestamp occupies two
// whitespace-delimited tokens (date, then time).  The caller declares the payload columns as typed
// specs; nothing here sniffs column names for date-ness.

package policy

import (
	"strconv"
)

type ColumnKind int

const (
	Plain ColumnKind = iota
	DatePaired
)

type ColumnSpec struct {
	Name string
	Kind ColumnKind
}

type fieldRole int

const (
	roleIdentity fieldRole = iota
	rolePayload
	roleDate
	roleTime
	roleSeparator
	roleFilename
)

type schemaField struct {
	name string
	role fieldRole
	// For roleTime, the date column this token completes.
	pairsWith string
}

type schema struct {
	fields []schemaField
}

// The effective positional schema: three identity columns, then per declared column the column
// itself (two tokens when DatePaired) followed by an auto-generated separator column, and the
// filename last.

func buildSchema(cols []ColumnSpec) *schema {
	fields := []schemaField{
		{name: "inodeNumber", role: roleIdentity},
		{name: "genNumber", role: roleIdentity},
		{name: "snapshotId", role: roleIdentity},
	}
	for i, c := range cols {
		switch c.Kind {
		case DatePaired:
			fields = append(fields,
				schemaField{name: c.Name, role: roleDate},
				schemaField{name: c.Name, role: roleTime, pairsWith: c.Name})
		default:
			fields = append(fields, schemaField{name: c.Name, role: rolePayload})
		}
		fields = append(fields, schemaField{name: sepName(i), role: roleSeparator})
	}
	fields = append(fields, schemaField{name: "filename", role: roleFilename})
	return &schema{fields: fields}
}

func sepName(i int) string {
	return "sep" + strconv.Itoa(i)
}
