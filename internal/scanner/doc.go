// Package scanner computes metadata records for many files in the background.
//
// A Worker owns one goroutine and a single-slot mailbox. Submitting a Batch replaces
// whatever batch is pending, and the worker checks the mailbox after every file, so a
// newer batch supersedes the one in flight without waiting for it to finish. Records
// live in Entry values that compute at most once; a Cache hands the same Entry out for
// unchanged files, so switching batches never recomputes finished work.
//
//	cache := scanner.NewCache(metadata.Load)
//	w := scanner.NewWorker(func(p scanner.Progress) {
//	    fmt.Printf("\r%d / %d", p.Done, p.Total)
//	})
//	go w.Run(ctx)
//	w.Submit(cache.Batch(paths))
package scanner
