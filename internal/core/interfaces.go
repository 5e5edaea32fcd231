package core

// ScriptEngine is one embedded JavaScript engine with the compiler program
// and bridging function loaded. Implementations are not safe for concurrent
// use and must only be called from the goroutine that created them.
type ScriptEngine interface {
	// Transpile calls the bridging function with the given source, file name
	// and JSON-encoded compiler options and returns its decoded result.
	Transpile(source, fileName, optionsJSON string) (*TranspileOutput, error)

	// Close releases the engine.
	Close()
}

// EngineFactory creates and initializes a ScriptEngine. The worker calls it
// once per worker lifetime, on the worker's locked OS thread.
type EngineFactory func() (ScriptEngine, error)
