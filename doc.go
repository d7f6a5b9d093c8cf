// Package miniql runs a small query language over pluggable storage.
//
// Document statements (SELECT, INSERT, UPDATE, DELETE) go to a
// query.DocumentManager and key-value statements (GET, PUT, DEL) to a
// query.KeyValueManager:
//
//	engine := miniql.New()
//	docs := core.NewManager()
//
//	_, err := engine.Query(ctx, docs, `INSERT God (name = "Diana", age = 20)`)
//
//	stmt, err := engine.Prepare(docs, "SELECT * FROM God WHERE age > @age ORDER BY name")
//	rows, err := stmt.Bind("age", 18).Result(ctx)
//
// Statements with parameters only run through a PreparedStatement.
package miniql
