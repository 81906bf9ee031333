package allocation

// Progress carries cumulative counters of a run
type Progress struct {
	Total     int
	Processed int
	Succeeded int
	Failed    int
	Message   string
}

// ProgressSink is invoked synchronously from the allocating goroutine, so it must return quickly.
// A nil sink is allowed.
type ProgressSink func(Progress)

type progressCounter struct {
	sink      ProgressSink
	total     int
	processed int
	succeeded int
	failed    int
}

func newProgressCounter(sink ProgressSink, total int) *progressCounter {
	return &progressCounter{sink: sink, total: total}
}

func (counter *progressCounter) report(message string) {
	if counter.sink == nil {
		return
	}
	counter.sink(Progress{
		Total:     counter.total,
		Processed: counter.processed,
		Succeeded: counter.succeeded,
		Failed:    counter.failed,
		Message:   message,
	})
}
