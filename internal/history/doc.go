// Package history reads the captioning pipeline's execution records.
//
// The pipeline owns this data; reclaim only consumes it. History-based orphan
// detection trusts a record only when the pipeline marked it completed and
// successful, and history purging never reaches past the oldest recorded
// cleanup run, because those rows are the evidence base for future safe
// detection.
package history
