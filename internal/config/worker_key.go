package config

type WorkerKeyStruct struct {
	ProctoringEventsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	ProctoringEventsQueue: "persist_proctoring_events_queue",
}
