// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package schema names the tables and columns of the credential store so
// both SQL backends build their queries from one definition.
package schema

import "strings"

// UserAccountTable represents the account table.
type UserAccountTable struct {
	Table        string
	ID           string
	Email        string
	PasswordHash string
	Secret       string
	CreatedAt    string
	UpdatedAt    string
}

// UserAccount is the PostgreSQL definition (users.account).
var UserAccount = UserAccountTable{
	Table:        "users.account",
	ID:           "id",
	Email:        "email",
	PasswordHash: "passwordhash",
	Secret:       "secret",
	CreatedAt:    "createdat",
	UpdatedAt:    "updatedat",
}

// LiteAccount is the SQLite definition. SQLite has no schemas.
var LiteAccount = UserAccount.InTable("account")

// InTable returns a copy of the definition bound to another table name.
func (t UserAccountTable) InTable(name string) UserAccountTable {
	t.Table = name
	return t
}

// Columns returns all column names in scan order.
func (t UserAccountTable) Columns() []string {
	return []string{t.ID, t.Email, t.PasswordHash, t.Secret, t.CreatedAt, t.UpdatedAt}
}

// SelectList returns Columns joined for a SELECT or RETURNING clause.
func (t UserAccountTable) SelectList() string {
	return strings.Join(t.Columns(), ", ")
}
