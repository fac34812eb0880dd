package lexer

import (
	"strings"
	"testing"
)

// ============================================================================
// Lexer 基准测试
// ============================================================================
//
// 运行基准测试：
//   go test -bench=. -benchmem ./internal/lexer/...
//
// ============================================================================

// 测试源码样本：典型的宽整数函数
var benchSource = `
; 128 位累加循环
define i128 @sum(i128* %p, i32 %n) {
entry:
  br label %loop

loop:
  %i = phi i32 [ 0, %entry ], [ %i.next, %loop ]
  %acc = phi i128 [ 0, %entry ], [ %acc.next, %loop ]
  %addr = getelementptr i128, i128* %p, i32 %i
  %v = load i128, i128* %addr, align 16
  %acc.next = add i128 %acc, %v
  %i.next = add i32 %i, 1
  %done = icmp eq i32 %i.next, %n
  br i1 %done, label %exit, label %loop

exit:
  %hi = lshr i128 %acc.next, 64
  %r = trunc i128 %hi to i64
  %vec = bitcast i128 %acc.next to <4 x i32>
  ret i128 %acc.next
}
`

// BenchmarkLexer 测试完整的词法分析性能
func BenchmarkLexer(b *testing.B) {
	b.ReportAllocs()
	b.SetBytes(int64(len(benchSource)))

	for i := 0; i < b.N; i++ {
		lexer := New(benchSource, "bench.ll")
		_ = lexer.ScanTokens()
	}
}

// BenchmarkLexerLargeFile 测试大文件的词法分析性能
func BenchmarkLexerLargeFile(b *testing.B) {
	largeSource := strings.Repeat(benchSource, 100)

	b.ReportAllocs()
	b.SetBytes(int64(len(largeSource)))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		lexer := New(largeSource, "large.ll")
		_ = lexer.ScanTokens()
	}
}

// BenchmarkLexerWhitespace 测试空白字符跳过性能
func BenchmarkLexerWhitespace(b *testing.B) {
	source := strings.Repeat("    \t\t    \n", 1000) + "ret"

	b.ReportAllocs()
	b.SetBytes(int64(len(source)))

	for i := 0; i < b.N; i++ {
		lexer := New(source, "whitespace.ll")
		_ = lexer.ScanTokens()
	}
}

// BenchmarkLexerNumbers 测试大整数字面量解析性能
func BenchmarkLexerNumbers(b *testing.B) {
	source := strings.Repeat("123 456 -789 0 18446744073709551616 ", 50) +
		strings.Repeat("340282366920938463463374607431768211455 ", 30)

	b.ReportAllocs()
	b.SetBytes(int64(len(source)))

	for i := 0; i < b.N; i++ {
		lexer := New(source, "numbers.ll")
		_ = lexer.ScanTokens()
	}
}

// BenchmarkLexerComments 测试注释跳过性能
func BenchmarkLexerComments(b *testing.B) {
	source := strings.Repeat("; single line comment\n", 50) + "ret"

	b.ReportAllocs()
	b.SetBytes(int64(len(source)))

	for i := 0; i < b.N; i++ {
		lexer := New(source, "comments.ll")
		_ = lexer.ScanTokens()
	}
}
