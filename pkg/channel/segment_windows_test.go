//go:build windows

package channel

import (
	"fmt"
	"os"
	"testing"
)

func TestNamedSegmentShared(t *testing.T) {
	name := fmt.Sprintf("Local\\popupguard-test-%d", os.Getpid())

	writer, err := openSegment(name, SegmentSize)
	if err != nil {
		t.Fatalf("创建映射失败: %v", err)
	}
	defer writer.Close()

	ch, err := Open(name)
	if err != nil {
		t.Fatalf("打开同名映射失败: %v", err)
	}

	if len(writer.Bytes()) != SegmentSize {
		t.Fatalf("映射长度 = %d, 期望 %d", len(writer.Bytes()), SegmentSize)
	}
	if ok, err := Append(writer.Bytes(), "文件已损坏"); err != nil || !ok {
		t.Fatalf("写入失败: ok=%v err=%v", ok, err)
	}

	texts, err := ch.Read()
	if err != nil {
		t.Fatalf("读取失败: %v", err)
	}
	if len(texts) != 1 || texts[0] != "文件已损坏" {
		t.Errorf("同名映射应共享内容, 实际 %v", texts)
	}

	if err := ch.Close(); err != nil {
		t.Errorf("关闭失败: %v", err)
	}
	if Count(writer.Bytes()) != 1 {
		t.Error("读取端关闭不应影响写入端视图")
	}
}

func TestSegmentCloseReleasesView(t *testing.T) {
	seg, err := openSegment(fmt.Sprintf("Local\\popupguard-close-%d", os.Getpid()), SegmentSize)
	if err != nil {
		t.Fatalf("创建映射失败: %v", err)
	}
	if err := seg.Close(); err != nil {
		t.Fatalf("关闭失败: %v", err)
	}
	if seg.Bytes() != nil {
		t.Error("关闭后不应再返回视图")
	}
	if err := seg.Close(); err != nil {
		t.Errorf("重复关闭不应报错: %v", err)
	}
}
