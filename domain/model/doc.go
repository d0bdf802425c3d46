/*
Package model contains the data types shared by the store, its result sets
and its queries: typed values, entries, change notifications, store
options and the limits every input is validated against.
*/
package model
