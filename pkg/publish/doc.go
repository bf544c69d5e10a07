// Package publish writes rendered documentation pages to their destination:
// a local directory, an S3 bucket or a database table.
package publish
