package workflow

import "github.com/mohae/deepcopy"

// deepCloneWorkflow produces an independent copy of a workflow so that the
// diff and autofix engines can mutate a working copy and only commit it
// back on success.
func deepCloneWorkflow(w *Workflow) *Workflow {
	if w == nil {
		return nil
	}
	copied := deepcopy.Copy(w)
	clone, ok := copied.(*Workflow)
	if !ok {
		// deepcopy.Copy never changes the dynamic type of a *Workflow; this
		// branch exists only to satisfy the type assertion contract.
		panic("workflow: deep copy returned unexpected type")
	}
	clone.Reindex()
	return clone
}
