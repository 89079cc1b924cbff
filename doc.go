/*
	Project: Gradebook - web & command line client of the assignments backend

	Students list assignments, read one, follow their submission status and submit their work.
	Teachers list assignments, review every submission of one and grade it.

	apps/web: server rendered pages, one client state per browser session
	apps/cli: the same operations from a terminal
*/
package gradebook
