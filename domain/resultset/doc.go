/*
Package resultset implements ResultSet, a positional cursor over a snapshot
of store entries.

A result set is opened by a store over the entries that matched a key
prefix or a query, in key order. Its position starts before the first
entry (-1) and can rest on any entry (0..count-1) or after the last entry
(count). Movements that run past either end return false but still move
the position to the matching boundary:

	rs.MoveToLast()     // true, position count-1
	rs.MoveToNext()     // false, position count
	rs.MoveToFirst()    // true, position 0
	rs.MoveToPrevious() // false, position -1

An empty result set never leaves position -1.

Every operation fails with ErrClosedResultSet once the result set is
closed.
*/
package resultset
