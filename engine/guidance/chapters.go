package guidance

import (
	"context"
	"fmt"
)

const chaptersKey = "chapters:v1"

type chapterInfo struct {
	name    string
	summary string
}

var chapterInfos = map[int]chapterInfo{
	1: {"Arjuna Vishada Yoga", "Arjuna's despair on the battlefield. Overwhelmed by grief at the prospect of " +
		"fighting his own kin, he lays down his arms."},
	2: {"Sankhya Yoga", "The yoga of knowledge. Krishna teaches the eternal nature of the soul, the importance " +
		"of duty, and introduces karma yoga."},
	3: {"Karma Yoga", "The yoga of selfless action. Krishna explains why action performed without attachment " +
		"leads to liberation."},
	4: {"Jnana Karma Sanyasa Yoga", "The yoga of knowledge and renunciation of action. Krishna reveals divine " +
		"incarnation and the fire of knowledge that burns all karma."},
	5: {"Karma Sanyasa Yoga", "The yoga of renunciation. Krishna compares renunciation and selfless action, " +
		"showing both paths lead to the same goal."},
	6: {"Dhyana Yoga", "The yoga of meditation. Detailed instructions on meditation practice, self-control, " +
		"and the marks of a true yogi."},
	7: {"Jnana Vijnana Yoga", "The yoga of knowledge and wisdom. Krishna reveals His divine nature and how all " +
		"of creation rests in Him."},
	8: {"Aksara Brahma Yoga", "The yoga of the imperishable Brahman. Teachings on what happens at the time of " +
		"death and how to attain the Supreme."},
	9: {"Raja Vidya Raja Guhya Yoga", "The yoga of royal knowledge and royal secret. Krishna reveals the most " +
		"confidential knowledge of devotion."},
	10: {"Vibhuti Yoga", "The yoga of divine glories. Krishna describes His divine manifestations throughout " +
		"creation."},
	11: {"Vishvarupa Darshana Yoga", "The yoga of the cosmic form. Arjuna is granted divine vision to see " +
		"Krishna's universal form containing all of existence."},
	12: {"Bhakti Yoga", "The yoga of devotion. Krishna explains the path of loving devotion and the qualities " +
		"of His dearest devotees."},
	13: {"Ksetra Ksetrajna Vibhaga Yoga", "The yoga of the field and its knower. Distinguishing between the " +
		"body (field) and the soul (knower of the field)."},
	14: {"Gunatraya Vibhaga Yoga", "The yoga of the three gunas. Krishna explains sattva, rajas, and tamas, " +
		"the three qualities of material nature."},
	15: {"Purushottama Yoga", "The yoga of the Supreme Person. The metaphor of the sacred banyan tree and the " +
		"nature of the Supreme Being."},
	16: {"Daivasura Sampad Vibhaga Yoga", "The yoga of divine and demonic qualities. Contrasting divine " +
		"virtues with demonic tendencies in human nature."},
	17: {"Shraddhatraya Vibhaga Yoga", "The yoga of the three divisions of faith. How faith, food, sacrifice, " +
		"and charity differ according to the three gunas."},
	18: {"Moksha Sanyasa Yoga", "The yoga of liberation through renunciation. The grand conclusion " +
		"synthesizing all teachings, culminating in complete surrender to the Divine."},
}

type ChapterSummary struct {
	Chapter    int    `json:"chapter"`
	Name       string `json:"name"`
	Summary    string `json:"summary"`
	VerseCount int    `json:"verse_count"`
}

// Chapters lists all eighteen chapters with the number of stored verses in
// each. Chapters without stored verses report a zero count.
func (s *Service) Chapters(ctx context.Context) ([]ChapterSummary, error) {
	if cached, ok := s.chapterCache.Get(ctx, chaptersKey); ok {
		return cached, nil
	}
	all, err := s.catalog.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("guidance: list chapters: %w", err)
	}
	counts := make(map[int]int, maxChapter)
	for i := range all {
		counts[all[i].Chapter]++
	}
	out := make([]ChapterSummary, 0, maxChapter)
	for ch := minChapter; ch <= maxChapter; ch++ {
		info := chapterInfos[ch]
		out = append(out, ChapterSummary{
			Chapter:    ch,
			Name:       info.name,
			Summary:    info.summary,
			VerseCount: counts[ch],
		})
	}
	s.chapterCache.Set(ctx, chaptersKey, out)
	return out, nil
}
