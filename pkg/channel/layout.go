// Package channel 读取注入模块写入共享内存的文本
//
// 段布局（小端）：
//
//	[u32 条目数][8 字节保留][100 × 4096 个 UTF-16 码元][u32 保留]
//
// 写入方（注入模块）递增条目数并依次写入槽位，满 100 后静默丢弃；
// 读取方截断条目数到 100，并通过清零条目数确认已读。
// 两端之间没有锁，读到半写的字符串或过期的计数都是允许的。
package channel

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// 布局常量
const (
	MaxEntries  = 100
	SlotUnits   = 4096
	SlotBytes   = SlotUnits * 2
	HeaderSize  = 4 + 8
	TrailerSize = 4
	SegmentSize = HeaderSize + MaxEntries*SlotBytes + TrailerSize

	// DefaultName 注入模块使用的共享内存名称
	DefaultName = "CDRPopupHandlerSharedMem"
)

var (
	// ErrChannelCreateFailed 创建共享内存失败
	ErrChannelCreateFailed = errors.New("创建共享内存失败")
	// ErrChannelMapFailed 映射共享内存失败
	ErrChannelMapFailed = errors.New("映射共享内存失败")
	// ErrClosed 通道已关闭
	ErrClosed = errors.New("共享内存通道已关闭")
)

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

func checkSize(buf []byte) error {
	if len(buf) < SegmentSize {
		return fmt.Errorf("共享内存大小不足: %d < %d", len(buf), SegmentSize)
	}
	return nil
}

// Count 读取条目数，已截断到 MaxEntries
func Count(buf []byte) int {
	n := binary.LittleEndian.Uint32(buf[0:4])
	if n > MaxEntries {
		return MaxEntries
	}
	return int(n)
}

func slot(buf []byte, i int) []byte {
	off := HeaderSize + i*SlotBytes
	return buf[off : off+SlotBytes]
}

// Decode 按槽位顺序解出文本，跳过空串和单字符噪声
func Decode(buf []byte) ([]string, error) {
	if err := checkSize(buf); err != nil {
		return nil, err
	}

	n := Count(buf)
	dec := utf16le.NewDecoder()
	out := make([]string, 0, n)

	for i := 0; i < n; i++ {
		raw := slot(buf, i)
		end := SlotBytes
		for j := 0; j+1 < SlotBytes; j += 2 {
			if raw[j] == 0 && raw[j+1] == 0 {
				end = j
				break
			}
		}
		if end == 0 {
			continue
		}

		text, err := dec.Bytes(raw[:end])
		if err != nil {
			// 写入中途被读到的槽位可能不完整
			continue
		}
		if isNoise(text) {
			continue
		}
		out = append(out, string(text))
	}

	return out, nil
}

// isNoise 单个字符多为逐字绘制产生的碎片
func isNoise(text []byte) bool {
	return utf8.RuneCount(text) <= 1
}

// Reset 清零条目数，写入方下次从槽位 0 开始
func Reset(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], 0)
}

// Append 按写入方约定追加一条文本，槽位已满时丢弃并返回 false
// 超长文本截断到 SlotUnits-1 个码元并以 0 结尾
func Append(buf []byte, text string) (bool, error) {
	if err := checkSize(buf); err != nil {
		return false, err
	}

	n := binary.LittleEndian.Uint32(buf[0:4])
	if n >= MaxEntries {
		return false, nil
	}

	encoded, err := utf16le.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return false, fmt.Errorf("编码文本失败: %w", err)
	}
	limit := (SlotUnits - 1) * 2
	if len(encoded) > limit {
		encoded = encoded[:limit]
		// 不在代理对中间截断
		last := binary.LittleEndian.Uint16(encoded[limit-2:])
		if last >= 0xD800 && last <= 0xDBFF {
			encoded = encoded[:limit-2]
		}
	}

	dst := slot(buf, int(n))
	copy(dst, encoded)
	dst[len(encoded)] = 0
	dst[len(encoded)+1] = 0

	binary.LittleEndian.PutUint32(buf[0:4], n+1)
	return true, nil
}
