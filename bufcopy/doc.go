// Package bufcopy copies bytes between OS descriptors (pipes, regular files,
// devices) without passing them through user space where the kernel allows.
//
// On Linux, CopyStream relays data through a private pipe with splice(2), and
// InjectToPipe / InjectToHandle hand in-memory data to the kernel with
// vmsplice(2). Whenever the zero-copy path is unavailable for a pair of
// descriptors (ENOSYS, EINVAL, EBADF) the engine switches, once, to a plain
// buffered copy that starts exactly where the zero-copy path stopped. Bytes
// already pulled into an intermediate pipe are always delivered or reported
// through an error; they are never dropped or written twice.
//
// Descriptors passed in are borrowed. The engine never closes them; it only
// closes pipes it created itself.
package bufcopy
