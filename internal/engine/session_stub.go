//go:build !ort

package engine

// This file is compiled when the 'ort' build tag is NOT set, keeping default
// builds and CI CGO-free. The real session adapter lives in session_ort.go
// (tagged 'ort').

// ortBuilt indicates this binary was compiled with the real ONNX runtime.
var ortBuilt = false

// openSession fails fast: the ONNX runtime is not available in this build.
// The lifecycle manager treats this as degraded mode, not a startup failure.
func openSession(path string, opts sessionOptions) (Session, error) {
	return nil, ErrRuntimeUnavailable("onnxruntime support not built (missing 'ort' build tag)")
}
