package stats

/*
This file defines all the metrics being collected. As new metrics are added
please follow this pattern.
*/

const (
	/************************** Elevator metrics ***************************/
	/*
		the number of requests admitted into the class FIFOs
	*/
	ElevAdmittedCounter = "admittedCounter"

	/*
		the number of requests handed to the device (expiry plus priority dispatches)
	*/
	ElevDispatchedCounter = "dispatchedCounter"

	/*
		the number of dispatches that preempted batch order because the request was past its deadline
	*/
	ElevExpiredDispatchCounter = "expiredDispatchCounter"

	/*
		the number of merges folding an adjacent request into a surviving one
	*/
	ElevMergedCounter = "mergedCounter"

	/*
		the number of times priority selection was pointed at writes to end a read run (split policy)
	*/
	ElevWriteForcedCounter = "writeForcedCounter"

	/************************** Simulator metrics **************************/
	/*
		time a request spent queued before dispatch
	*/
	SimRequestWaitLatency_ms = "requestWaitLatency_ms"

	/*
		the number of dispatch opportunities that found every queue empty
	*/
	SimIdleDispatchCounter = "idleDispatchCounter"

	/*
		requests still queued when the simulated run ended (should drain to zero)
	*/
	SimPendingGauge = "pendingGauge"
)
