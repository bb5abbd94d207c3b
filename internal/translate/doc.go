// Package translate calls the external translation service and detects the
// source language of submitted text. Translation is best effort: individual
// target languages may fail without failing the job.
package translate
