// Package roomgraph defines the shared data model for the map-reconstruction
// engine: doors, labels, plan steps, and the room/door addressing scheme used
// by every solver stage (trace parsing, signature inequalities, simulated
// annealing, base-map completion, DFS layer completion, submission).
package roomgraph
