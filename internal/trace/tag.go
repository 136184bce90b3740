package trace

// Tag wraps t so every event carries key=value in Extra. The run id of a CLI
// invocation is attached this way.
func Tag(t Tracer, key, value string) Tracer {
	if t == nil || !t.Enabled() {
		return t
	}
	return &tagTracer{Tracer: t, key: key, value: value}
}

type tagTracer struct {
	Tracer
	key, value string
}

func (t *tagTracer) Emit(ev *Event) {
	extra := make(map[string]string, len(ev.Extra)+1)
	for k, v := range ev.Extra {
		extra[k] = v
	}
	extra[t.key] = t.value
	ev.Extra = extra
	t.Tracer.Emit(ev)
}
