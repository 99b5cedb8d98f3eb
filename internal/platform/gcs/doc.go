// Package gcs provides the Google Cloud Storage client used to read staged
// source material uploads during quiz generation.
package gcs
