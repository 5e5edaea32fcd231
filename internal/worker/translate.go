package worker

import "github.com/cryguy/tscompiler/internal/core"

// translate turns the compiler's output into a CompiledModule. Output is
// kept only when no diagnostic is an error; every diagnostic becomes a
// "code:message" entry in order.
func translate(fileName string, out *core.TranspileOutput) *core.CompiledModule {
	m := &core.CompiledModule{
		FileName: fileName,
		Messages: make([]string, 0, len(out.Diagnostics)),
	}
	for _, d := range out.Diagnostics {
		m.Messages = append(m.Messages, d.String())
	}
	m.Success = !out.HasErrors()
	if m.Success {
		m.SourceCode = out.OutputText
		m.SourceMap = out.SourceMapText
	}
	return m
}

func faultResult(fileName string, err error) *core.CompiledModule {
	return core.Failed(fileName, err.Error())
}
