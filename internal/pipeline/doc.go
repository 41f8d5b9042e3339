// Package pipeline runs document extraction as a sequence of steps.
//
// A document goes through four stages: fetch the page, locate the record
// payload, decode it, and reconstruct the table. Each stage is a Step that
// receives the current Extraction and adds its output. Tests replace a
// stage, usually the fetcher, by building the Pipeline by hand.
//
// BatchProcessor runs one pipeline per document with bounded concurrency
// using errgroup.
package pipeline
