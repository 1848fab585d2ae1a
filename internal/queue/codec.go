package queue

import "github.com/bytedance/sonic"

func encodeTask(t *Task) ([]byte, error) {
	return sonic.Marshal(t)
}

func decodeTask(raw []byte) (*Task, error) {
	var t Task
	if err := sonic.Unmarshal(raw, &t); err != nil {
		return nil, err
	}
	return &t, nil
}
