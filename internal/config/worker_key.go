package config

type WorkerKeyStruct struct {
	FinalizeQueue string
}

var WorkerKey = &WorkerKeyStruct{
	FinalizeQueue: "finalize_sessions_queue",
}
