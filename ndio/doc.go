/*
	Package ndio provides types, constants, and functions that have no other dependencies
	and can be used by all packages within ndio.  This includes the voxel geometry used to
	address remote volumes, the dense volume container handed to callers, the error kinds
	shared by the cutout and transport layers, and package-level logging.
*/
package ndio
