// Package validate performs the schema check on normalized quotes before
// they are published. A quote that fails any rule never reaches the queue.
package validate
