/*
Package query builds backend independent predicates and orderings over
stored documents.

Predicates are small immutable trees built from Eq, Gt, In, StartsWith and
friends over document paths, combined with AllOf, AnyOf and Not or with a
FilterBuilder:

	filter := query.NewFilter().
	    And(query.Eq(query.Data("status"), "active")).
	    AndIf(minPrice > 0, query.Gt(query.Data("price"), minPrice))

	sort := query.NewSort().
	    ThenBy(query.DataKey("price")).
	    ThenByDescending(query.Key("_ts"))

A predicate evaluates in memory with Eval and renders for a backend with
Render and a Dialect. The Cosmos DB, DynamoDB and relational backends each
provide their own Dialect. Placeholders are assigned at render time, so
predicates built in separate helpers compose without any rebinding.
*/
package query
