package runner

import "context"

const subscribeCapacity = 5

// Output replays stdout and stderr of a process from the beginning and
// follows them until it exits or ctx is done.
func (runner *Runner) Output(ctx context.Context, id string) (<-chan []byte, <-chan []byte, error) {
	pe, err := runner.getProcess(id)
	if err != nil {
		return nil, nil, err
	}
	logger.Trace().Str("process", id).Msg("output subscribed")
	return pe.stdout.Subscribe(ctx, subscribeCapacity), pe.stderr.Subscribe(ctx, subscribeCapacity), nil
}

// OutputLines is Output split into lines.
func (runner *Runner) OutputLines(ctx context.Context, id string) (<-chan string, <-chan string, error) {
	pe, err := runner.getProcess(id)
	if err != nil {
		return nil, nil, err
	}
	logger.Trace().Str("process", id).Msg("output lines subscribed")
	return pe.stdout.SubscribeLines(ctx, subscribeCapacity), pe.stderr.SubscribeLines(ctx, subscribeCapacity), nil
}
