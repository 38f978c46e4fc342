package state

var (
	DBG_log_router      = false // log every route computation
	DBG_log_route_table = false // log the full table after it changes
	DBG_log_probe       = false // log every probe hop
	DBG_debug           = false // serve expvar and pprof
)
