package feishu

import (
	"encoding/json"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// SendText 向指定群聊发送一条文本消息
func (c *Client) SendText(chatID, text string) error {
	content, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return errors.Wrap(err, "序列化消息内容失败")
	}

	body := map[string]interface{}{
		"receive_id": chatID,
		"msg_type":   "text",
		"content":    string(content),
	}
	if err := c.postJSON("/open-apis/im/v1/messages?receive_id_type=chat_id", body, nil); err != nil {
		return errors.Wrap(err, "发送飞书消息失败")
	}
	zap.S().Infof("📤 消息已发送至 %s", chatID)
	return nil
}
