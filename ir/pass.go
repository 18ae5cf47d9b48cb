package ir

import (
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Pass transforms a Graph in place.
type Pass interface {
	// Name returns the pass name, used in logs and error messages.
	Name() string
	// Run applies the pass to g.
	Run(g *Graph) error
}

// RunPasses applies the passes to g sequentially, stopping at the first failure.
//
// Panics (exceptions) raised by a pass are converted to errors. Either way the error is annotated
// with the name of the failing pass.
func RunPasses(g *Graph, passes ...Pass) error {
	for ii, p := range passes {
		var err error
		panicErr := exceptions.TryCatch[error](func() { err = p.Run(g) })
		if panicErr != nil {
			err = panicErr
		}
		if err != nil {
			return errors.WithMessagef(err, "while running pass %q (%d out of %d)", p.Name(), ii+1, len(passes))
		}
		klog.V(1).Infof("pass %q done: graph has %d nodes, %d edges", p.Name(), g.NumNodes(), g.NumEdges())
	}
	return nil
}
