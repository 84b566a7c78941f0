// Package http はオブジェクトストレージなど外部サービス呼び出し用のHTTPクライアントを提供します。
package http

import (
	"net"
	"net/http"
	"time"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
)

// NewHTTPClient はS3互換ストレージ向けに調整したHTTPクライアントを作成します。
//
// 設定:
//   - Dialer.Timeout: TCP接続タイムアウト（MinIO停止時に早く失敗させる）
//   - MaxIdleConnsPerHost: 接続先は1ホストなので既定の2では足りない
//   - ResponseHeaderTimeout: アップロード完了後の応答待ちの上限
//   - Client.Timeout: リクエスト全体のタイムアウト（呼び出し元から渡される）
//
// SDKがAWS_CA_BUNDLEのルートCAをTransportへ注入できるよう、
// *http.Clientではなく*awshttp.BuildableClientを返します。
func NewHTTPClient(timeout time.Duration) *awshttp.BuildableClient {
	return awshttp.NewBuildableClient().
		WithTimeout(timeout).
		WithDialerOptions(func(d *net.Dialer) {
			d.Timeout = 5 * time.Second
			d.KeepAlive = 30 * time.Second
		}).
		WithTransportOptions(func(t *http.Transport) {
			t.Proxy = http.ProxyFromEnvironment
			t.MaxIdleConns = 100
			t.MaxIdleConnsPerHost = 32
			t.IdleConnTimeout = 90 * time.Second
			t.TLSHandshakeTimeout = 5 * time.Second
			t.ResponseHeaderTimeout = timeout
		})
}
