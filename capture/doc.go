// Package capture runs still captures and gallery previews on a background
// queue.
//
// Jobs execute one at a time in submission order, each blocking the queue
// goroutine until the GPU finishes. Callers get a job ID immediately and
// collect the result with Wait. Captured stills are encoded as JPEG and,
// when a GalleryStore is configured, saved under the job ID.
//
//	q := capture.NewQueue(engine, capture.WithStore(store))
//	defer q.Close()
//
//	id, err := q.Capture(img, p)
//	...
//	res, err := q.Wait(ctx, id)
package capture
