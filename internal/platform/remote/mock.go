package remote

import "context"

// Mock is a func-field implementation of Executor for tests. Methods
// whose func field is nil report success with zero values, so tests
// only wire the calls they care about.
type Mock struct {
	RunFunc    func(ctx context.Context, argv ...string) error
	OutputFunc func(ctx context.Context, argv ...string) (string, error)
	CopyFunc   func(ctx context.Context, content []byte, remotePath string) error
}

func (m *Mock) Run(ctx context.Context, argv ...string) error {
	if m.RunFunc == nil {
		return nil
	}
	return m.RunFunc(ctx, argv...)
}

func (m *Mock) Output(ctx context.Context, argv ...string) (string, error) {
	if m.OutputFunc == nil {
		return "", nil
	}
	return m.OutputFunc(ctx, argv...)
}

func (m *Mock) Copy(ctx context.Context, content []byte, remotePath string) error {
	if m.CopyFunc == nil {
		return nil
	}
	return m.CopyFunc(ctx, content, remotePath)
}
