// Package stream decodes the newline-delimited JSON metric stream
// produced by a load generator.
//
// Each line is either a metric declaration or a sample point:
//
//	{"type":"Metric","data":{"name":"http_req_duration","type":"trend","contains":"time"}}
//	{"type":"Point","metric":"http_req_duration","data":{"time":1700000000.5,"value":42.1,"tags":{"status":"200"}}}
//
// Lines with any other "type" value are skipped silently. Malformed lines
// are reported as *ParseError and skipped with a warning; a corrupt line
// never aborts the pass.
package stream
