/*
Package dsl provides a Go DSL (Domain Specific Language) for programmatically constructing parley interviews.

It allows developers to define interviews using a type-safe, fluent builder pattern
instead of relying on external YAML files. This is particularly useful for dynamic interview
generation, unit testing, and leveraging IDE autocompletion/type-checking.

Built interviews pass through the same decoders as loaded YAML, so they validate,
serialize and store exactly like file-defined ones.

Example usage:

	package main

	import (
		"log"

		"github.com/aretw0/parley/pkg/dsl"
	)

	func main() {
		b := dsl.NewInterview("registration")

		name := b.Question("q-name").Title("Your name")
		name.Text("name")

		age := b.Question("q-age").Title("Your age")
		age.Number("age").Integer().Min(0)

		b.Ask("q-name")
		b.Ask("q-age")
		b.Exit("Come back next year").When("age < 18")

		iv, err := b.Build()
		if err != nil {
			log.Fatal(err)
		}

		// Register with the engine:
		// parley.New("", parley.WithInterviews(map[string]*interview.Interview{"registration": iv}))
		_ = iv
	}
*/
package dsl
