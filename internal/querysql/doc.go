// Package querysql compiles queryir queries to parameterized SQLite.
//
// Every value is bound as a parameter; field names come from the queryir
// Catalog, never from user input, so generated SQL contains no literals.
// Every query carries an ORDER BY with COLLATE BINARY on text columns so
// results do not depend on the database locale.
package querysql
