// Command vidpipe drives the surgical video dataset pipeline: it registers
// source links, runs the processing stages, and reports per-video progress.
package main
