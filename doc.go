// Package anvil builds, validates and serializes the deployment
// configuration of an RPC/execution runtime instance.
//
// A configuration is a tree of specs: a `TransportSpec` for the network
// layer, an `ExecutionSpec` owning the worker `PoolSpec`s and the
// `StreamSpec`s that schedule work on them, a `RuntimeSpec` tying those
// together, and auxiliary `IoSpec`/`GroupSpec` instances each bound to
// one pool. The `ProcessSpec` root aggregates everything the runtime
// process needs.
//
// ## How it works
//
// Specs are built bottom-up with constructors and mutated freely, then
// `ProcessSpec.Validate` walks the whole tree and checks every
// invariant, most importantly referential integrity: pools and streams
// compare by identity, and every pool referenced anywhere must be the
// exact object registered in the execution spec's pool collection. Two
// pools with identical settings stay two different pools.
//
// `ProcessSpec.Encode` emits the JSON document the runtime binary
// consumes, replacing reference edges by stable names so the tree
// serializes without duplication. `ParseProcessSpec` reverses it
// bottom-up: containers are decoded before the references into them,
// so each decoding step receives the registry it resolves names
// against. `ParseYAML` accepts the same document authored as YAML.
//
// `Launch` writes a document to disk and starts the runtime binary on
// it; `Client` wraps an engine handle to talk to a running instance.
// Neither participates in validation.
package anvil
