package channel

import (
	"fmt"
	"sync"
)

// Segment 已映射的共享内存
type Segment interface {
	Bytes() []byte
	Close() error
}

// Channel 共享文本通道的读取端
type Channel struct {
	mu   sync.Mutex
	name string
	seg  Segment
}

// New 基于已映射的段创建通道
func New(name string, seg Segment) (*Channel, error) {
	if err := checkSize(seg.Bytes()); err != nil {
		seg.Close()
		return nil, fmt.Errorf("%w: %v", ErrChannelMapFailed, err)
	}
	return &Channel{name: name, seg: seg}, nil
}

// Open 创建或打开指定名称的共享内存
func Open(name string) (*Channel, error) {
	seg, err := openSegment(name, SegmentSize)
	if err != nil {
		return nil, err
	}
	return New(name, seg)
}

// Name 共享内存名称
func (c *Channel) Name() string {
	return c.name
}

// Read 读取当前捕获的全部文本
func (c *Channel) Read() ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.seg == nil {
		return nil, ErrClosed
	}
	return Decode(c.seg.Bytes())
}

// Clear 清零条目数
func (c *Channel) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.seg == nil {
		return ErrClosed
	}
	Reset(c.seg.Bytes())
	return nil
}

// Close 解除映射并释放句柄，可重复调用
func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.seg == nil {
		return nil
	}
	err := c.seg.Close()
	c.seg = nil
	return err
}
