// Package convert adapts the cloud document conversion service into
// processing capabilities.
//
// The service speaks an upload-then-convert protocol behind OAuth2 client
// credentials: files are uploaded to remote storage, conversions run either
// synchronously (word, excel, compress, rotate) or as queued jobs that the
// executor polls (page rendering). Tokens are cached until shortly before
// expiry.
package convert
