/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package repository provides narrow CRUD repositories over the document
// and relational facades. They add no semantics of their own: a
// DocumentRepository fixes the container and derives partition keys from
// entities, a RelationalRepository fixes the table.
package repository
