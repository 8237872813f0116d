// Package health reports whether an entity store and its transport are in a
// usable state.
//
// A Checker returns a Result with a Status of Healthy, Degraded or
// Unhealthy. StoreChecker derives one from entity.Store statistics: a high
// share of errored entries means the upstream API is failing for this
// process. CircuitChecker reports hosts whose transport circuit breaker is
// open.
//
// An Aggregator runs registered checkers concurrently under one deadline
// and folds their results into an overall status, which the HTTP handlers
// expose:
//
//	agg := health.NewAggregator()
//	agg.Register("store", health.NewStoreChecker(store, health.StoreCheckerConfig{}))
//	agg.Register("transport", health.NewCircuitChecker(client))
//
//	mux := http.NewServeMux()
//	health.RegisterHandlers(mux, agg)
package health
