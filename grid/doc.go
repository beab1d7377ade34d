/*
	Package grid aligns requested coordinate ranges to the native block grid of a remote
	volume and plans the block-aligned sub-cube requests that cover them.

	Every block grid is anchored at an origin: the first storage cell of a channel begins
	at the origin on each axis, which need not be zero.  All functions here are pure.
*/
package grid
