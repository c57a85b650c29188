package main

/*
#include <stdlib.h>
*/
import "C"
import (
	"unsafe"
)

// Every function returning *C.char hands ownership of a JSON response to
// the caller, who releases it with sqliteplus_free.

//export sqliteplus_open
func sqliteplus_open(path *C.char) C.int {
	handle, err := handles.open(C.GoString(path), "")
	if err != nil {
		return -1
	}
	return C.int(handle)
}

//export sqliteplus_open_archived
func sqliteplus_open_archived(path, archiveDir *C.char) C.int {
	handle, err := handles.open(C.GoString(path), C.GoString(archiveDir))
	if err != nil {
		return -1
	}
	return C.int(handle)
}

//export sqliteplus_close
func sqliteplus_close(handle C.int) C.int {
	if err := handles.close(int(handle)); err != nil {
		return -1
	}
	return 0
}

//export sqliteplus_execute
func sqliteplus_execute(handle C.int, query *C.char) *C.char {
	return C.CString(encode(handles.execute(int(handle), C.GoString(query), "")))
}

//export sqliteplus_execute_template
func sqliteplus_execute_template(handle C.int, query, bindingsJSON *C.char) *C.char {
	return C.CString(encode(handles.execute(int(handle), C.GoString(query), C.GoString(bindingsJSON))))
}

//export sqliteplus_commit
func sqliteplus_commit(handle C.int) *C.char {
	return C.CString(encode(handles.commit(int(handle))))
}

//export sqliteplus_rollback
func sqliteplus_rollback(handle C.int) *C.char {
	return C.CString(encode(handles.rollback(int(handle))))
}

//export sqliteplus_free
func sqliteplus_free(ptr *C.char) {
	C.free(unsafe.Pointer(ptr))
}

func main() {}
