//go:build !linux

package bufcopy

import "syscall"

const haveSplice = false

func (c *Copier) spliceWrite(dst, src borrowed) (relayResult, error) {
	return relayResult{fallback: true}, nil
}

// InjectToPipe always asks for the fallback: there is no vmsplice(2) here.
func (c *Copier) InjectToPipe(data []byte, dst Handle) (int64, bool, error) {
	return maybeUnsupported("vmsplice", syscall.ENOSYS)
}

// InjectToHandle always asks for the fallback: there is no vmsplice(2) here.
func (c *Copier) InjectToHandle(data []byte, pipeR, pipeW, dst Handle) (int64, bool, error) {
	return maybeUnsupported("vmsplice", syscall.ENOSYS)
}
