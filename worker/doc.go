// Package worker provides a worker pool for extracting from many
// documents in parallel.
//
// Within one document the engine already fans out across windows; this
// pool sits above it and fans out across documents, which is the shape
// batch ingestion jobs want.
//
// Example usage:
//
//	pool := worker.NewPool(extractor, 4, targets)
//	defer pool.Close()
//
//	for id, text := range documents {
//	    pool.Submit(worker.Job{ID: id, Text: text})
//	}
//
//	for result := range pool.Results() {
//	    if result.Error != nil {
//	        // Handle error
//	    }
//	    // Process result.Result
//	}
package worker
