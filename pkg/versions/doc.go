// Package versions reduces container image tags to the newest semantic
// version per (major, minor) line.
//
// # Overview
//
// Tags are parsed by a [Parser] and fed to an [Aggregator], which keeps, for
// every [MajorMinor] key, the greatest version seen under that key:
//
//	agg := versions.NewAggregator()
//	for _, tag := range []string{"1.2.0", "1.2.5", "v1.3", "2.0.0-rc1"} {
//	    v, err := versions.Lenient.Parse(tag)
//	    if err != nil {
//	        continue // not a version, skip it
//	    }
//	    agg.Insert(v)
//	}
//	out, _ := json.MarshalIndent(agg.Snapshot(), "", "  ")
//
// # Ordering
//
// Versions are ordered by semantic-version precedence: numeric fields compare
// numerically, a pre-release sorts below the matching release and build
// metadata is ignored. Keys are ordered by major, then minor. A [Snapshot]
// serializes its keys in that order, so "2.0" precedes "10.0" in the output
// even though a plain string sort would not.
//
// # Parsers
//
// [Lenient] accepts the loose forms registries are full of ("v1.2", "3",
// "1.02.0"). [Strict] accepts only MAJOR.MINOR.PATCH[-PRE][+BUILD]. The
// aggregator does not care which one produced a version.
package versions
