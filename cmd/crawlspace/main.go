// Package main provides the crawlspace entry point.
//
// Crawlspace is an MCP server exposing web crawling as tools: multi-URL
// crawls, breadth-first and best-first deep crawls, and a search wrapper.
//
// Usage:
//
//	crawlspace                      # serve over stdio
//	crawlspace --transport http    # serve over streamable HTTP
package main

// main is the entry point for crawlspace.
func main() {
	Execute()
}
