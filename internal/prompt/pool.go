package prompt

import (
	"context"
	"sync"

	"github.com/bethropolis/promptpack/internal/reader"
	"github.com/bethropolis/promptpack/internal/utils"
)

// readOutcome is what one ReadFileContent call returned
type readOutcome struct {
	res reader.Result
	err error
}

// readAll reads every path and returns the outcomes indexed like paths.
// With more than one worker the reads run concurrently; each worker writes
// only its own slots, so input order survives completion order.
func readAll(ctx context.Context, r FileReader, paths []string, workers int, log utils.Logger) []readOutcome {
	outcomes := make([]readOutcome, len(paths))

	if workers <= 1 || len(paths) <= 1 {
		for i, p := range paths {
			outcomes[i] = readOne(ctx, r, p)
		}
		return outcomes
	}

	if workers > len(paths) {
		workers = len(paths)
	}

	jobs := make(chan int, workers*2)
	var wg sync.WaitGroup

	log.Debug("Starting %d read workers for %d files.", workers, len(paths))
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go readWorker(ctx, w+1, r, paths, jobs, outcomes, &wg, log)
	}

	for i := range paths {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return outcomes
}

func readWorker(
	ctx context.Context,
	id int,
	r FileReader,
	paths []string,
	jobs <-chan int,
	outcomes []readOutcome,
	wg *sync.WaitGroup,
	log utils.Logger,
) {
	defer wg.Done()

	for i := range jobs {
		select {
		case <-ctx.Done():
			outcomes[i] = readOutcome{err: ctx.Err()}
		default:
			log.Debug("Worker %d: reading [%s]", id, paths[i])
			outcomes[i] = readOne(ctx, r, paths[i])
		}
	}
}

// readOne shields the batch from a panicking reader
func readOne(ctx context.Context, r FileReader, path string) (out readOutcome) {
	defer func() {
		if p := recover(); p != nil {
			out = readOutcome{err: &invocationError{path: path, cause: p}}
		}
	}()
	res, err := r.ReadFileContent(ctx, path)
	return readOutcome{res: res, err: err}
}
